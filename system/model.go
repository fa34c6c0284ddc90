package system

// LogLikelihood is the host-supplied log-likelihood function of spec §6:
// given a candidate parameter vector theta (length D()) and the dataset,
// it returns a value on the log scale. Implementations are assumed pure
// and non-blocking; a non-finite return is treated as an automatic
// rejection rather than an error (spec §7 UserError).
type LogLikelihood func(theta []float64, data Dataset) float64

// LogPrior is the host-supplied log-prior function of spec §6: given a
// candidate parameter vector theta, it returns a value on the log scale.
// Same purity/non-blocking assumption and non-finite handling as
// LogLikelihood.
type LogPrior func(theta []float64) float64
