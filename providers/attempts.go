package providers

import "context"

// attemptState tracks progress through an ordered fallback chain
type attemptState int

const (
	attemptPending attemptState = iota
	attemptTryNext
	attemptSucceeded
	attemptExhausted
)

// attempt is one independently failable stage of a fallback chain. An error
// or an empty outcome passes control to the next stage.
type attempt struct {
	name string
	run  func(ctx context.Context) (string, bool, error)
}

// chain is an ordered list of resolution attempts, short-circuiting on the
// first stage that yields a value
type chain struct {
	name     string
	attempts []attempt
	state    attemptState
}

func (c *chain) run(ctx context.Context) (string, bool) {
	c.state = attemptPending
	for _, a := range c.attempts {
		c.state = attemptTryNext
		value, ok, err := a.run(ctx)
		if err != nil {
			log.Warnf("%s: attempt %q errored: %s", c.name, a.name, err)
			continue
		}
		if !ok {
			log.Debugf("%s: attempt %q produced nothing", c.name, a.name)
			continue
		}
		c.state = attemptSucceeded
		return value, true
	}
	c.state = attemptExhausted
	return "", false
}
