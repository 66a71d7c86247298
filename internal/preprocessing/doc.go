// Package preprocessing turns validated raw records into model features.
//
// The equipment Type is mapped L→0, M→1, H→2 and any other value is
// rejected. The five sensor readings are standardized by a StandardScaler
// whose statistics come from gonum/stat. The fitted scaler is returned to
// the caller and reused, never refit, for every single-record prediction.
package preprocessing
