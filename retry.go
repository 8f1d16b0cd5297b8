package waypoint

import (
	"math"
	"math/rand/v2"
	"time"
)

// RetryCalculator computes the delay to arm before a failed item becomes
// eligible for selection again. The delay combines an exponential
// component, a linear component, a uniformly-distributed random jitter,
// and a constant addend, all scaled by a common factor.
//
// For round n, the delay in microseconds is:
//
//	factor*exp_base^(exp_factor*min(n,exp_rounds_cap)) +
//	factor*linear_factor*min(n,linear_rounds_cap) +
//	Uniform[0,max_random) +
//	addend
//
// linear_rounds_cap defaults to unbounded (the round number itself is used
// uncapped) when nil.
//
// Pattern: Strategy — the delay formula is data, not code; presets below
// configure it for common profiles without requiring callers to compute
// rounds caps and factors by hand.
type RetryCalculator struct {
	// Factor scales both the exponential and linear components.
	Factor int `yaml:"factor"`
	// ExpBase is the base of the exponential component.
	ExpBase float64 `yaml:"exp-base"`
	// ExpFactor multiplies the capped round number in the exponent.
	ExpFactor float64 `yaml:"exp-factor"`
	// ExpRoundsCap bounds the round number used in the exponential component.
	ExpRoundsCap int `yaml:"exp-rounds-cap"`
	// LinearFactor multiplies the capped round number in the linear component.
	LinearFactor float64 `yaml:"linear-factor"`
	// LinearRoundsCap bounds the round number used in the linear component.
	// A nil value leaves it unbounded.
	LinearRoundsCap *int `yaml:"linear-rounds-cap"`
	// MaxRandom is the exclusive upper bound of the uniform random addend.
	MaxRandom int `yaml:"max-random"`
	// Addend is a constant added to every delay.
	Addend int `yaml:"addend"`
}

// UnmarshalYAML fills unset fields with [DefaultRetryCalculator]'s values
// before decoding, so a YAML document that omits a field gets its default
// rather than Go's zero value.
func (r *RetryCalculator) UnmarshalYAML(unmarshal func(any) error) error {
	type plain RetryCalculator
	aux := plain(DefaultRetryCalculator())
	if err := unmarshal(&aux); err != nil {
		return err
	}
	*r = RetryCalculator(aux)
	return nil
}

// DefaultRetryCalculator returns the zero-configuration calculator: a
// doubling exponential backoff capped at round 20, no linear component,
// and up to 100us of jitter.
func DefaultRetryCalculator() RetryCalculator {
	return RetryCalculator{
		Factor:          100,
		ExpBase:         2.0,
		ExpFactor:       1.0,
		ExpRoundsCap:    20,
		LinearFactor:    0.0,
		LinearRoundsCap: nil,
		MaxRandom:       100,
		Addend:          0,
	}
}

// FastRetry returns a calculator tuned for low-latency local retries: a
// short exponential ramp capped early, with little jitter.
func FastRetry() RetryCalculator {
	return RetryCalculator{
		Factor:          10,
		ExpBase:         2.0,
		ExpFactor:       1.0,
		ExpRoundsCap:    8,
		LinearFactor:    0.0,
		LinearRoundsCap: nil,
		MaxRandom:       20,
		Addend:          0,
	}
}

// StandardRetry returns [DefaultRetryCalculator], named for symmetry with
// [FastRetry] and [PatientRetry].
func StandardRetry() RetryCalculator {
	return DefaultRetryCalculator()
}

// PatientRetry returns a calculator tuned for expensive remote targets: a
// longer exponential ramp, a linear floor so later rounds keep growing
// past the exponential cap, and wider jitter to avoid synchronized
// retries across many callers.
func PatientRetry() RetryCalculator {
	cap := 100
	return RetryCalculator{
		Factor:          1000,
		ExpBase:         2.0,
		ExpFactor:       1.0,
		ExpRoundsCap:    20,
		LinearFactor:    1.0,
		LinearRoundsCap: &cap,
		MaxRandom:       5000,
		Addend:          50,
	}
}

// Delay returns the backoff duration for the nth retry round (0-indexed).
func (r RetryCalculator) Delay(n int) time.Duration {
	expRound := min(n, r.ExpRoundsCap)
	exponent := r.ExpFactor * float64(expRound)

	linearRound := float64(n)
	if r.LinearRoundsCap != nil {
		linearRound = float64(min(n, *r.LinearRoundsCap))
	}

	randomAddend := 0
	if r.MaxRandom > 0 {
		randomAddend = rand.IntN(r.MaxRandom)
	}

	factor := float64(r.Factor)
	us := math.Pow(r.ExpBase, exponent)*factor +
		linearRound*r.LinearFactor*factor +
		float64(randomAddend) +
		float64(r.Addend)

	if us < 0 {
		us = 0
	}

	return time.Duration(us) * time.Microsecond
}
