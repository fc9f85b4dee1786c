// Package intensity implements the boundary-corrected kernel rate estimator.
//
// Given arrival times t₁…tₙ (minutes since a fixed epoch) observed over the window
// [0, now], the rate at t is
//
//	λ(t) = Σᵢ φ((t − tᵢ)/h) / (h · C(t)),   C(t) = Φ((now − t)/h) − Φ(−t/h)
//
// where φ and Φ are the standard normal density and distribution and h is the
// bandwidth. C(t) renormalises the kernel mass clipped by the window edges, so the
// estimate is not biased low near the most recent arrivals.
package intensity
