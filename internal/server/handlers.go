package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/housepredict/housing"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"github.com/YuminosukeSato/housepredict/pkg/log"
)

const (
	msgNotFound         = "Endpoint not found"
	msgMethodNotAllowed = "Method not allowed"
	msgInternal         = "Internal server error"
	msgBadJSON          = "Request body must be a JSON object"
	msgNoFile           = "No file provided"
	msgNoFileSelected   = "No file selected"
	msgNotCSV           = "Only CSV files are allowed"
	msgTooLarge         = "File exceeds the upload limit"

	prefixPredict = "Prediction error: "
	prefixCSV     = "CSV processing error: "

	fileField = "file"
)

type errorResponse struct {
	Error string `json:"error"`
}

type predictResponse struct {
	Success     bool                     `json:"success"`
	Predictions housing.PredictionResult `json:"predictions"`
	Input       housing.FeatureVector    `json:"input"`
}

type csvResponse struct {
	Success   bool                 `json:"success"`
	Results   []housing.RowOutcome `json:"results"`
	TotalRows int                  `json:"total_rows"`
}

// uploadError is a malformed upload, reported as 400 with its message.
type uploadError struct {
	msg string
}

func (e *uploadError) Error() string { return e.msg }

// predict handles POST /predict.
func (s *Server) predict(c *gin.Context) {
	// Checked before the body is parsed; the service reports and counts it.
	if !s.svc.Ready() {
		_, err := s.svc.Predict(c.Request.Context(), nil)
		s.fail(c, err, prefixPredict)
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgBadJSON})
		return
	}

	pred, err := s.svc.Predict(c.Request.Context(), raw)
	if err != nil {
		s.fail(c, err, prefixPredict)
		return
	}
	c.JSON(http.StatusOK, predictResponse{
		Success:     true,
		Predictions: pred.Predictions,
		Input:       pred.Input,
	})
}

// predictCSV handles POST /predict-csv. The file part is streamed into the
// CSV reader; nothing is written to disk.
func (s *Server) predictCSV(c *gin.Context) {
	if !s.svc.Ready() {
		_, err := s.svc.PredictCSV(c.Request.Context(), http.NoBody)
		s.fail(c, err, prefixCSV)
		return
	}

	body := &limitedBody{ReadCloser: http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)}
	c.Request.Body = body

	part, err := filePart(c.Request)
	if err != nil {
		s.failUpload(c, body, err)
		return
	}
	defer part.Close()

	s.logger.Debug("csv upload received",
		log.RequestIDKey, c.GetString(requestIDCtxKey),
		"filename", part.FileName(),
		log.UploadSizeKey, c.Request.ContentLength,
	)

	res, err := s.svc.PredictCSV(c.Request.Context(), part)
	if err != nil {
		s.failUpload(c, body, err)
		return
	}
	c.JSON(http.StatusOK, csvResponse{
		Success:   true,
		Results:   res.Results,
		TotalRows: res.TotalRows,
	})
}

// health handles GET /health.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Health())
}

// filePart returns the "file" part of a multipart body.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &uploadError{msg: msgNoFile}
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, &uploadError{msg: msgNoFile}
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != fileField {
			part.Close()
			continue
		}
		name := part.FileName()
		switch {
		case name == "":
			part.Close()
			return nil, &uploadError{msg: msgNoFileSelected}
		case !strings.HasSuffix(name, ".csv"):
			part.Close()
			return nil, &uploadError{msg: msgNotCSV}
		}
		return part, nil
	}
}

// limitedBody remembers whether the upload limit was hit, whichever reader
// ended up surfacing the error.
type limitedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if err != nil && errors.As(err, &tooLarge) {
		b.exceeded = true
	}
	return n, err
}

func (s *Server) failUpload(c *gin.Context, body *limitedBody, err error) {
	if body.exceeded {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{Error: msgTooLarge})
		return
	}
	s.fail(c, err, prefixCSV)
}

// fail renders err with the status its kind maps to.
func (s *Server) fail(c *gin.Context, err error, prefix string) {
	status, code, msg := classify(err, prefix)
	fields := []any{
		log.RequestIDKey, c.GetString(requestIDCtxKey),
		log.RouteKey, c.FullPath(),
		log.ErrorCodeKey, code,
		log.ErrorTypeKey, fmt.Sprintf("%T", errors.UnwrapAll(err)),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error", append([]any{err}, fields...)...)
	} else {
		s.logger.Debug("request rejected", append(fields, log.ErrorDetailKey, msg)...)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func classify(err error, prefix string) (status int, code, msg string) {
	var (
		upload      *uploadError
		validation  *errors.ValidationError
		structural  *errors.StructuralInputError
		unavailable *errors.ModelsUnavailableError
	)
	switch {
	case errors.As(err, &upload):
		return http.StatusBadRequest, log.ErrorInvalidInput, upload.Error()
	case errors.As(err, &validation):
		return http.StatusBadRequest, log.ErrorInvalidInput, validation.Error()
	case errors.As(err, &structural):
		return http.StatusBadRequest, log.ErrorMissingColumns, structural.Error()
	case errors.As(err, &unavailable):
		return http.StatusInternalServerError, log.ErrorModelUnavailable, unavailable.Error()
	default:
		return http.StatusInternalServerError, log.ErrorInternal, prefix + err.Error()
	}
}
