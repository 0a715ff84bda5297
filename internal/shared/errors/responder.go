package errors

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type of every problem response.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper turns a domain error into a problem. ok is false when the
// mapper does not recognise err.
type ErrorMapper func(err error) (problem ProblemDetail, ok bool)

// Responder writes problem documents onto a gin context. Errors pass through
// the mappers in order; the first match wins.
type Responder struct {
	baseURI string
	mappers []ErrorMapper
}

// NewResponder builds a responder. A non-empty baseURI is prefixed to
// relative problem types.
func NewResponder(baseURI string, mappers ...ErrorMapper) *Responder {
	return &Responder{baseURI: strings.TrimSuffix(baseURI, "/"), mappers: mappers}
}

// Respond writes problem, filling Instance from the request path when empty.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.baseURI != "" && strings.HasPrefix(problem.Type, "/") {
		problem.Type = r.baseURI + problem.Type
	}
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError maps err and writes it. Unmapped errors become a 500 unless
// they already are a ProblemDetail.
func (r *Responder) RespondError(c *gin.Context, err error) {
	r.Respond(c, r.problemFor(err))
}

// BadRequest reports a request the handler could not decode.
func (r *Responder) BadRequest(c *gin.Context, detail string) {
	r.Respond(c, ErrBadRequest.WithDetail(detail))
}

func (r *Responder) problemFor(err error) ProblemDetail {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			return problem
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem
	}
	return ErrInternal.WithDetail(err.Error())
}
