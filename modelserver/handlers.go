package modelserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/observability"
	"github.com/kbukum/mlopskit/serving"
)

func (s *Server) handlePing(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (s *Server) handlePredict(c *gin.Context) {
	ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanPredict)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)
	start := time.Now()

	var req serving.Payload
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	rows, err := s.align(req.Data)
	if err != nil {
		s.fail(c, err)
		return
	}
	proba, err := s.classifier.PredictProba(rows)
	if err != nil {
		s.fail(c, errors.InvalidInput("data.ndarray", err.Error()))
		return
	}

	out := serving.Payload{Data: serving.Tensor{Names: serving.ClassNames(2), NDArray: make([][]float64, len(proba))}}
	for i, p := range proba {
		out.Data.NDArray[i] = []float64{1 - p, p}
	}
	out.Meta = map[string]any{"model": s.modelName}

	observability.SetSpanAttribute(ctx, observability.AttrRows, len(rows))
	if s.metrics != nil {
		s.metrics.RecordPrediction(ctx, len(rows), time.Since(start))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) fail(c *gin.Context, err error) {
	ctx := c.Request.Context()
	observability.SetSpanError(ctx, err)
	if s.metrics != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			s.metrics.RecordError(ctx, string(appErr.Code), "modelserver")
		}
	}
	respondWithError(c, err)
}

// align reorders request columns into the classifier's feature order. A
// request without names must already be in that order.
func (s *Server) align(t serving.Tensor) ([][]float64, error) {
	features := s.classifier.Features
	if len(t.Names) == 0 {
		return t.NDArray, nil
	}
	pos := make(map[string]int, len(t.Names))
	for i, n := range t.Names {
		pos[n] = i
	}
	idx := make([]int, len(features))
	for j, f := range features {
		i, ok := pos[f]
		if !ok {
			return nil, errors.InvalidInput("data.names", fmt.Sprintf("missing feature %q", f))
		}
		idx[j] = i
	}
	rows := make([][]float64, len(t.NDArray))
	for r, row := range t.NDArray {
		aligned := make([]float64, len(idx))
		for j, i := range idx {
			aligned[j] = row[i]
		}
		rows[r] = aligned
	}
	return rows, nil
}
