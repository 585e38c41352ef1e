package endpoint

import (
	"github.com/ariebrainware/ai-maama/model"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
)

type formResponse struct {
	Values model.ClinicalRecord `json:"values"`
	Fields []FieldSchema        `json:"fields"`
}

type setFieldRequest struct {
	Value *string `json:"value" binding:"required"`
}

type validateResponse struct {
	Valid        bool                `json:"valid"`
	Errors       []model.FieldError  `json:"errors,omitempty"`
	Measurements *model.Measurements `json:"measurements,omitempty"`
}

// GetForm godoc
// @Summary      Current form values
// @Tags         Form
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Form retrieved"
// @Router       /form [get]
func GetForm(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Form retrieved",
		Data: formResponse{Values: s.Form.Snapshot(), Fields: formSchema()},
	})
}

// SetField godoc
// @Summary      Update one form field
// @Description  Stores the raw value; numbers are only checked on validate and submit
// @Tags         Form
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        field path string true "Field name, e.g. SystolicBP"
// @Success      200 {object} util.APIResponse "Field updated"
// @Failure      400 {object} util.APIResponse "Unknown field or missing value"
// @Router       /form/{field} [put]
func SetField(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	var req setFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Request body must be {\"value\": \"...\"}", Err: err})
		return
	}
	if err := s.Form.SetField(c.Param("field"), *req.Value); err != nil {
		if !respondFieldError(c, err) {
			util.CallServerError(c, util.APIErrorParams{Msg: "Could not update the field", Err: err})
		}
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Field updated",
		Data: formResponse{Values: s.Form.Snapshot()},
	})
}

// SetFields godoc
// @Summary      Update several form fields
// @Description  All-or-nothing: one unknown field rejects the whole batch
// @Tags         Form
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Fields updated"
// @Failure      400 {object} util.APIResponse "Unknown field or bad body"
// @Router       /form [patch]
func SetFields(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Request body must map field names to string values", Err: err})
		return
	}
	if err := s.Form.SetFields(values); err != nil {
		if !respondFieldError(c, err) {
			util.CallServerError(c, util.APIErrorParams{Msg: "Could not update the form", Err: err})
		}
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Fields updated",
		Data: formResponse{Values: s.Form.Snapshot()},
	})
}

// ResetForm clears every field.
func ResetForm(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	s.Form.Reset()
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Form cleared",
		Data: formResponse{Values: s.Form.Snapshot()},
	})
}

// ValidateForm parses the current values without submitting them.
func ValidateForm(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	m, err := s.Form.Snapshot().Validate()
	if err != nil {
		resp := validateResponse{Valid: false}
		if verrs, ok := err.(model.ValidationErrors); ok {
			resp.Errors = verrs
		}
		util.CallSuccessOK(c, util.APISuccessParams{Msg: "Form has invalid fields", Data: resp})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Form is valid",
		Data: validateResponse{Valid: true, Measurements: &m},
	})
}
