package clinicserver

import (
	"github.com/gin-gonic/gin"

	schedhttpmapper "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/http/mapper"
	apierrors "github.com/Apurer/petclinic-scheduling/internal/shared/errors"
)

var responder = apierrors.NewResponder("", schedhttpmapper.ProblemFromError)

// respondBadRequest reports a payload the handler could not decode.
func respondBadRequest(c *gin.Context, err error) {
	responder.BadRequest(c, err.Error())
}

// respondServiceError translates scheduling failures into RFC 7807 responses.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}
