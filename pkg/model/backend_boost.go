//go:build !noboost

package model

import "encoding/gob"

func init() {
	registerBackend(KindXGBoost, func() Classifier { return NewGradientBoosting() })
	registerBackend(KindCatBoost, func() Classifier { return NewObliviousBoosting() })

	gob.Register(&GradientBoosting{})
	gob.Register(&ObliviousBoosting{})
}
