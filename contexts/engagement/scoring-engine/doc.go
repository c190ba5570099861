// Package scoringengine contains the GreenLoop implementation of the
// Scoring & Carbon-Accounting Engine.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package scoringengine
