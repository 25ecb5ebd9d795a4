// Package indicator holds the fixed table of U.S. macro indicators the
// calendar knows about: display labels, release clock and the keywords used
// to recognise each one in remote calendar data.
package indicator

import "fmt"

// Type identifies one indicator.
type Type string

const (
	FOMC                Type = "FOMC"
	Powell              Type = "Powell"
	NFP                 Type = "NFP"
	CPI                 Type = "CPI"
	PPI                 Type = "PPI"
	ISMManufacturing    Type = "ISM-Manufacturing"
	ISMNonManufacturing Type = "ISM-NonManufacturing"
	Retail              Type = "Retail"
	Unemployment        Type = "Unemployment"
)

// Clock is a fixed hour:minute in U.S. Eastern time.
type Clock struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	_, err := fmt.Sscanf(string(b), "%d:%d", &c.Hour, &c.Minute)
	return err
}

// Spec is the static record for one indicator type.
type Spec struct {
	Type        Type
	Title       string
	ClassName   string
	Release     Clock
	Frequency   string
	Description string
	Keywords    []string
}

// order is the emission order used everywhere events are listed.
var order = []Type{FOMC, Powell, NFP, CPI, PPI, ISMManufacturing, ISMNonManufacturing, Retail, Unemployment}

var specs = map[Type]Spec{
	FOMC: {
		Type:        FOMC,
		Title:       "美联储利率决议（FOMC）",
		ClassName:   "event-fomc",
		Release:     Clock{14, 0},
		Frequency:   "每年8次",
		Description: "美联储联邦公开市场委员会利率决议",
		Keywords:    []string{"Federal Funds Rate", "FOMC", "Interest Rate Decision"},
	},
	Powell: {
		Type:        Powell,
		Title:       "鲍威尔新闻发布会",
		ClassName:   "event-powell",
		Release:     Clock{14, 30},
		Frequency:   "每年8次",
		Description: "美联储主席鲍威尔新闻发布会",
		Keywords:    []string{"Fed Chair Speech", "Powell Speech"},
	},
	NFP: {
		Type:        NFP,
		Title:       "非农就业数据（NFP）",
		ClassName:   "event-nfp",
		Release:     Clock{8, 30},
		Frequency:   "每月1次",
		Description: "美国非农就业数据，每月第一个周五公布",
		Keywords:    []string{"Nonfarm Payrolls", "Non-Farm Payrolls", "Employment Change"},
	},
	CPI: {
		Type:        CPI,
		Title:       "美国CPI（含核心CPI）",
		ClassName:   "event-cpi",
		Release:     Clock{8, 30},
		Frequency:   "每月1次",
		Description: "美国消费者物价指数，通常在当月12-15日之间公布",
		Keywords:    []string{"Consumer Price Index", "CPI", "Inflation Rate"},
	},
	PPI: {
		Type:        PPI,
		Title:       "PPI（生产者物价指数）",
		ClassName:   "event-ppi",
		Release:     Clock{8, 30},
		Frequency:   "每月1次",
		Description: "生产者物价指数，通常在CPI公布前一天",
		Keywords:    []string{"Producer Price Index", "PPI"},
	},
	ISMManufacturing: {
		Type:        ISMManufacturing,
		Title:       "ISM制造业PMI",
		ClassName:   "event-ism",
		Release:     Clock{10, 0},
		Frequency:   "每月1次",
		Description: "ISM制造业采购经理人指数，每月第一个工作日公布",
		Keywords:    []string{"ISM Manufacturing PMI", "Manufacturing PMI"},
	},
	ISMNonManufacturing: {
		Type:        ISMNonManufacturing,
		Title:       "ISM非制造业PMI（服务业）",
		ClassName:   "event-ism",
		Release:     Clock{10, 0},
		Frequency:   "每月1次",
		Description: "ISM非制造业采购经理人指数，每月第三个工作日公布",
		Keywords:    []string{"ISM Non-Manufacturing PMI", "Services PMI", "Non-Manufacturing PMI"},
	},
	Retail: {
		Type:        Retail,
		Title:       "零售销售（Retail Sales）",
		ClassName:   "event-retail",
		Release:     Clock{8, 30},
		Frequency:   "每月1次",
		Description: "美国零售销售数据，通常在第2个周五公布",
		Keywords:    []string{"Retail Sales", "Retail Sales MoM"},
	},
	Unemployment: {
		Type:        Unemployment,
		Title:       "初请失业金人数",
		ClassName:   "event-unemployment",
		Release:     Clock{8, 30},
		Frequency:   "每周1次",
		Description: "美国初请失业金人数，每周四公布，反映前一周数据",
		Keywords:    []string{"Initial Jobless Claims", "Unemployment Claims"},
	},
}

// All returns every indicator type in emission order.
func All() []Type {
	out := make([]Type, len(order))
	copy(out, order)
	return out
}

// Lookup returns the static record for t. Unknown types yield a zero Spec.
func Lookup(t Type) Spec {
	return specs[t]
}

func (t Type) Valid() bool {
	_, ok := specs[t]
	return ok
}

func (t Type) String() string { return string(t) }
