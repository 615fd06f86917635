package pipeline

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNotFitted         = errors.New("pipeline not fitted")
	ErrEmptyTrainingSet  = errors.New("empty training set")
	ErrSingleClass       = errors.New("training labels contain a single class")
	ErrTooFewSamples     = errors.New("too few samples per class for calibration folds")
	ErrLengthMismatch    = errors.New("samples and labels differ in length")
	ErrCalibrationFailed = errors.New("sigmoid calibration failed")
	ErrMalformed         = errors.New("malformed pipeline")
)
