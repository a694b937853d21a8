package alerts

// Counters tallies alert emissions. Dispatcher methods return the delta they
// caused; callers sum them into whatever scope they track (batch, session).
type Counters struct {
	NewGrant int `json:"new_grant"`
	Deadline int `json:"deadline"`
	Test     int `json:"test"`
	Failures int `json:"failures"`
}

func (c Counters) Add(o Counters) Counters {
	return Counters{
		NewGrant: c.NewGrant + o.NewGrant,
		Deadline: c.Deadline + o.Deadline,
		Test:     c.Test + o.Test,
		Failures: c.Failures + o.Failures,
	}
}

// Total is the number of alerts emitted, delivered or not.
func (c Counters) Total() int {
	return c.NewGrant + c.Deadline + c.Test
}
