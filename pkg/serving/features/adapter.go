// Package features turns stored clinical measurements into the model's input
// vector.
package features

import "github.com/diseaseforecast/platform/pkg/clinical"

// Placeholder stands in for the age and sex inputs of the model's training
// schema, which the serving path does not collect.
const Placeholder = 0.0

// Names lists the model inputs in vector order.
var Names = []string{"age", "sex", "bmi", "bp", "s1", "s2", "s3", "s4", "s5", "s6"}

// Width is the length of every vector Adapt returns.
const Width = 10

// Adapt returns [age, sex, bmi, bp, s1..s6] with the two leading placeholders
// set to Placeholder. Values are passed through unchanged.
func Adapt(m clinical.Measurements) []float64 {
	return []float64{
		Placeholder,
		Placeholder,
		m.BMI,
		m.BP,
		m.S1,
		m.S2,
		m.S3,
		m.S4,
		m.S5,
		m.S6,
	}
}

// Snapshot keys a vector by feature name for storage alongside a prediction.
func Snapshot(vector []float64) map[string]interface{} {
	out := make(map[string]interface{}, len(vector))
	for i, v := range vector {
		if i < len(Names) {
			out[Names[i]] = v
		}
	}
	return out
}
