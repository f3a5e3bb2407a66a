package sim

import (
	"fmt"

	yaml "gopkg.in/yaml.v2"

	"woflos-in-go/kernel"
)

// Snapshot is the architectural state of the hart in a form that diffs
// well: registers by ABI name, values in hex.
type Snapshot struct {
	PC      string            `yaml:"pc"`
	Priv    string            `yaml:"priv"`
	Regs    map[string]string `yaml:"regs"`
	Sstatus string            `yaml:"sstatus"`
	Sepc    string            `yaml:"sepc"`
	Scause  string            `yaml:"scause"`
	Stval   string            `yaml:"stval"`
	Time    uint64            `yaml:"time"`
	Traps   uint64            `yaml:"traps"`
	Halted  bool              `yaml:"halted"`
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%016x", v)
}

func (c *CPU) Snapshot() Snapshot {
	s := Snapshot{
		PC:      hex(c.pc),
		Priv:    "S",
		Regs:    make(map[string]string, kernel.NREG-1),
		Sstatus: hex(c.sstatus),
		Sepc:    hex(c.sepc),
		Scause:  hex(c.scause),
		Stval:   hex(c.stval),
		Time:    c.time,
		Traps:   c.traps,
		Halted:  c.halted,
	}
	if c.priv == PRIV_U {
		s.Priv = "U"
	}
	for n := 1; n < kernel.NREG; n++ {
		s.Regs[kernel.RegName(n)] = hex(c.x[n])
	}
	return s
}

func (s Snapshot) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// ParseSnapshot reads a snapshot written by YAML.
func ParseSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	err := yaml.Unmarshal(b, &s)
	return s, err
}
