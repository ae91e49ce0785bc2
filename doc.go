// Package housepredict serves house price and price-category predictions from
// three pre-trained models: a linear regressor for the price, and a logistic
// regression and a decision tree for the Cheap / Medium / Expensive category.
//
// The models and the feature scaler are trained elsewhere and exported as
// scikit-learn compatible JSON:
//
//	{"model_spec": {"name": "LogisticRegression", "format_version": "1.0"}, "params": {...}}
//
// # Quick Start
//
//	artifacts, err := housing.LoadArtifacts(housing.ModelConfig{Dir: "models"}, log.GetLogger())
//	if err != nil {
//	    // The service still starts; Ready reports false until all four load.
//	}
//	svc, err := housing.NewService(artifacts)
//	pred, err := svc.Predict(ctx, map[string]any{
//	    "size": 1200, "rooms": 3, "location": 5, "age": 10,
//	})
//	fmt.Println(pred.Predictions.Price, pred.Predictions.CategoryLogistic)
//
// or from the command line:
//
//	housepredict serve --config config.yaml
//	housepredict predict --size 1200 --rooms 3 --location 5 --age 10
//	housepredict batch houses.csv
//
// # Packages
//
//   - housing: validation, scaling, inference, aggregation, batch processing
//   - linear: LinearRegression inference
//   - sklearn/linear_model: LogisticRegression inference
//   - sklearn/tree: DecisionTreeClassifier inference
//   - preprocessing: StandardScaler and MinMaxScaler transforms
//   - metrics: price error and category accuracy against labelled data
//   - core/model: capability interfaces and the sklearn JSON envelope
//   - core/parallel: bounded worker pool used by batch processing
//   - internal/server: HTTP API (gin)
//   - internal/config: YAML, .env and environment configuration
//   - internal/metrics: Prometheus collectors
//   - pkg/errors, pkg/log: error taxonomy and zerolog-backed logging
//
// # HTTP API
//
//	POST /predict       {"size": 1200, "rooms": 3, "location": 5, "age": 10}
//	POST /predict-csv   multipart field "file", a .csv with size,rooms,location,age
//	GET  /health        {"status": "ok", "models_loaded": true}
//	GET  /metrics       Prometheus exposition
package housepredict
