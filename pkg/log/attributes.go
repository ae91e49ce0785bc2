// Package log defines standard attribute keys for prediction operations.
//
// Keys follow a hierarchical naming convention (e.g., "model.name",
// "batch.rows") so logs from the HTTP layer, the CLI and the pipeline can be
// filtered the same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model, e.g. "LinearRegression".
	ModelNameKey = "model.name"

	// ArtifactKey is the logical artifact name: linear_model, logistic_model,
	// tree_model or scaler.
	ArtifactKey = "model.artifact"

	// ArtifactPathKey is the file an artifact was read from.
	ArtifactPathKey = "model.artifact_path"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase: "startup" or "inference".
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features per row.
	FeaturesKey = "data.features"

	// BatchRowsKey is the total number of rows in a batch submission.
	BatchRowsKey = "batch.rows"

	// BatchFailedKey is the number of rows that produced a row error.
	BatchFailedKey = "batch.failed"

	// BatchWorkersKey is the worker count used to evaluate a batch.
	BatchWorkersKey = "batch.workers"

	// RowKey is the 1-based position of a row in a batch.
	RowKey = "batch.row"
)

// Performance
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Prediction Output
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// PriceKey is the predicted price of a single request.
	PriceKey = "preds.price"

	// CacheHitKey reports whether a single prediction was served from cache.
	CacheHitKey = "preds.cache_hit"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"

	// ErrorDetailKey holds the structured form of errors that marshal themselves.
	ErrorDetailKey = "error.detail"
)

// HTTP
const (
	RequestIDKey  = "http.request_id"
	MethodKey     = "http.method"
	RouteKey      = "http.route"
	StatusKey     = "http.status"
	ClientIPKey   = "http.client_ip"
	UploadSizeKey = "http.upload_bytes"
)

// Standard attribute values.
const (
	OperationPredict      = "predict"
	OperationPredictBatch = "predict_batch"
	OperationEvaluate     = "evaluate"
	OperationLoad         = "load"

	PhaseStartup   = "startup"
	PhaseInference = "inference"

	ErrorNotLoaded        = "NOT_LOADED"
	ErrorInvalidInput     = "INVALID_INPUT"
	ErrorMissingColumns   = "MISSING_COLUMNS"
	ErrorModelUnavailable = "MODELS_UNAVAILABLE"
	ErrorRowFailed        = "ROW_FAILED"
	ErrorInternal         = "INTERNAL"
)
