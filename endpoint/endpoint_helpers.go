package endpoint

import (
	"errors"

	"github.com/ariebrainware/ai-maama/middleware"
	"github.com/ariebrainware/ai-maama/model"
	"github.com/ariebrainware/ai-maama/session"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
)

// FieldSchema describes one form field for the presentation layer.
type FieldSchema struct {
	Name    string         `json:"name"`
	Label   string         `json:"label"`
	Options []model.Option `json:"options,omitempty"`
}

func formSchema() []FieldSchema {
	names := model.FieldNames()
	out := make([]FieldSchema, 0, len(names))
	for _, name := range names {
		out = append(out, FieldSchema{
			Name:    name,
			Label:   model.FieldLabel(name),
			Options: model.FieldOptions(name),
		})
	}
	return out
}

// currentSession returns the session attached by middleware.SessionRequired,
// or responds 401 and returns false.
func currentSession(c *gin.Context) (*session.Session, bool) {
	s, ok := middleware.GetSession(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Session token is required",
			Err: session.ErrInvalidToken,
		})
		return nil, false
	}
	return s, true
}

// respondFieldError maps form errors to 400 responses. It reports whether err
// was handled.
func respondFieldError(c *gin.Context, err error) bool {
	var invalid *model.InvalidFieldError
	if errors.As(err, &invalid) {
		util.CallUserError(c, util.APIErrorParams{
			Msg:  "Unknown form field",
			Err:  err,
			Data: gin.H{"field": invalid.Field},
		})
		return true
	}
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		util.CallUserError(c, util.APIErrorParams{
			Msg:  "Please complete all fields with valid values",
			Err:  err,
			Data: gin.H{"errors": []model.FieldError(verrs)},
		})
		return true
	}
	return false
}
