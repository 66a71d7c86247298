// Package services implements the application use cases behind the HTTP
// handlers: training and prediction, the presentation viewer and health.
package services
