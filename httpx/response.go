package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mediator/mediator"
)

// DataResponse wraps a successful result.
type DataResponse struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

// RespondWithError writes err as the error envelope. Errors that are not
// AppErrors become internal errors so causes never leak to the client.
func RespondWithError(c *gin.Context, err error) {
	appErr := mediator.AsAppError(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse().WithRequestID(c.GetString("request_id")))
}

// RespondOK writes data with 200 OK.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondCreated writes data with 201 Created.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, DataResponse{Data: data})
}

// RespondNoContent writes 204 No Content.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondAccepted writes 202 Accepted with an optional body.
func RespondAccepted(c *gin.Context, data any) {
	if data == nil {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(http.StatusAccepted, DataResponse{Data: data})
}

func respond(c *gin.Context, status int, data any) {
	switch status {
	case http.StatusCreated:
		RespondCreated(c, data)
	case http.StatusAccepted:
		RespondAccepted(c, data)
	case http.StatusNoContent:
		RespondNoContent(c)
	case http.StatusOK:
		RespondOK(c, data)
	default:
		c.JSON(status, DataResponse{Data: data})
	}
}
