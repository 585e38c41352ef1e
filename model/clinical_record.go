package model

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Clinical form field names, in the order the form presents them.
const (
	FieldAge            = "Age"
	FieldSystolicBP     = "SystolicBP"
	FieldDiastolicBP    = "DiastolicBP"
	FieldBS             = "BS"
	FieldBodyTemp       = "BodyTemp"
	FieldHeartRate      = "HeartRate"
	FieldBMI            = "BMI"
	FieldAnaemia        = "Anaemia"
	FieldParity         = "Parity"
	FieldDeliveryMethod = "DeliveryMethod"
	FieldHistoryPPH     = "HistoryPPH"
)

var fieldNames = []string{
	FieldAge,
	FieldSystolicBP,
	FieldDiastolicBP,
	FieldBS,
	FieldBodyTemp,
	FieldHeartRate,
	FieldBMI,
	FieldAnaemia,
	FieldParity,
	FieldDeliveryMethod,
	FieldHistoryPPH,
}

var fieldLabels = map[string]string{
	FieldAge:            "Age (years)",
	FieldSystolicBP:     "Systolic Blood Pressure (mmHg)",
	FieldDiastolicBP:    "Diastolic Blood Pressure (mmHg)",
	FieldBS:             "Blood Sugar (mmol/L)",
	FieldBodyTemp:       "Body Temperature (°F)",
	FieldHeartRate:      "Heart Rate (beats/min)",
	FieldBMI:            "Body Mass Index (BMI)",
	FieldAnaemia:        "Anaemia (Low Blood Level)",
	FieldParity:         "Number of Previous Deliveries (Parity)",
	FieldDeliveryMethod: "Delivery Method",
	FieldHistoryPPH:     "History of Postpartum Haemorrhage (PPH)",
}

// Option is one choice of an ordinal-coded field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var fieldOptions = map[string][]Option{
	FieldAnaemia:        {{Value: "0", Label: "No"}, {Value: "1", Label: "Yes"}},
	FieldDeliveryMethod: {{Value: "0", Label: "Normal"}, {Value: "1", Label: "Cesarean"}},
	FieldHistoryPPH:     {{Value: "0", Label: "No"}, {Value: "1", Label: "Yes"}},
}

// FieldNames returns the recognized field names in form order.
func FieldNames() []string {
	return append([]string(nil), fieldNames...)
}

// IsField reports whether name is one of the recognized clinical fields.
func IsField(name string) bool {
	_, ok := fieldLabels[name]
	return ok
}

// FieldLabel returns the human label (with unit) for a field, or "" if unknown.
func FieldLabel(name string) string {
	return fieldLabels[name]
}

// FieldOptions returns the select options of an ordinal field, or nil for numeric fields.
func FieldOptions(name string) []Option {
	opts, ok := fieldOptions[name]
	if !ok {
		return nil
	}
	return append([]Option(nil), opts...)
}

// ClinicalRecord is the raw form snapshot submitted for prediction.
// Values stay as text until Validate is called; the JSON encoding is the
// wire format expected by the prediction service.
type ClinicalRecord struct {
	Age            string `json:"Age" validate:"required,measure"`
	SystolicBP     string `json:"SystolicBP" validate:"required,measure"`
	DiastolicBP    string `json:"DiastolicBP" validate:"required,measure"`
	BS             string `json:"BS" validate:"required,measure"`
	BodyTemp       string `json:"BodyTemp" validate:"required,measure"`
	HeartRate      string `json:"HeartRate" validate:"required,measure"`
	BMI            string `json:"BMI" validate:"required,measure"`
	Anaemia        string `json:"Anaemia" validate:"required,oneof=0 1"`
	Parity         string `json:"Parity" validate:"required,number"`
	DeliveryMethod string `json:"DeliveryMethod" validate:"required,oneof=0 1"`
	HistoryPPH     string `json:"HistoryPPH" validate:"required,oneof=0 1"`
}

func (r *ClinicalRecord) field(name string) (*string, error) {
	switch name {
	case FieldAge:
		return &r.Age, nil
	case FieldSystolicBP:
		return &r.SystolicBP, nil
	case FieldDiastolicBP:
		return &r.DiastolicBP, nil
	case FieldBS:
		return &r.BS, nil
	case FieldBodyTemp:
		return &r.BodyTemp, nil
	case FieldHeartRate:
		return &r.HeartRate, nil
	case FieldBMI:
		return &r.BMI, nil
	case FieldAnaemia:
		return &r.Anaemia, nil
	case FieldParity:
		return &r.Parity, nil
	case FieldDeliveryMethod:
		return &r.DeliveryMethod, nil
	case FieldHistoryPPH:
		return &r.HistoryPPH, nil
	}
	return nil, &InvalidFieldError{Field: name}
}

// Get returns the raw value of the named field.
func (r ClinicalRecord) Get(name string) (string, error) {
	p, err := r.field(name)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// With returns a copy of r with the named field replaced. r itself is not modified.
func (r ClinicalRecord) With(name, value string) (ClinicalRecord, error) {
	p, err := r.field(name)
	if err != nil {
		return r, err
	}
	*p = value
	return r, nil
}

// Values returns the record as a field name to raw value map.
func (r ClinicalRecord) Values() map[string]string {
	out := make(map[string]string, len(fieldNames))
	for _, name := range fieldNames {
		v, _ := r.Get(name)
		out[name] = v
	}
	return out
}

func (r ClinicalRecord) trimmed() ClinicalRecord {
	out := r
	for _, name := range fieldNames {
		p, _ := out.field(name)
		*p = strings.TrimSpace(*p)
	}
	return out
}

// Measurements is a ClinicalRecord coerced into its clinical domains.
type Measurements struct {
	Age         float64 `json:"age" validate:"gt=0"`
	SystolicBP  float64 `json:"systolic_bp" validate:"gt=0"`
	DiastolicBP float64 `json:"diastolic_bp" validate:"gt=0"`
	BS          float64 `json:"bs" validate:"gt=0"`
	BodyTemp    float64 `json:"body_temp" validate:"gt=0"`
	HeartRate   float64 `json:"heart_rate" validate:"gt=0"`
	BMI         float64 `json:"bmi" validate:"gt=0"`
	Anaemia     bool    `json:"anaemia"`
	Parity      int     `json:"parity" validate:"gte=0"`
	Cesarean    bool    `json:"cesarean"`
	HistoryPPH  bool    `json:"history_pph"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("measure", isMeasure)
	return v
}

// isMeasure accepts any decimal literal a number input can produce, including
// exponents and a bare leading or trailing dot. Literals too large for a
// float64 pass here and are rejected as out of range by Validate.
func isMeasure(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.ContainsAny(s, "xX_") {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Is(err, strconv.ErrRange)
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Validate parses every field into its clinical domain. It returns
// ValidationErrors listing each offending field in form order.
func (r ClinicalRecord) Validate() (Measurements, error) {
	raw := r.trimmed()
	errs := collectFieldErrors(validate.Struct(raw))
	if len(errs) > 0 {
		return Measurements{}, errs.sorted()
	}

	m := Measurements{
		Anaemia:    raw.Anaemia == "1",
		Cesarean:   raw.DeliveryMethod == "1",
		HistoryPPH: raw.HistoryPPH == "1",
	}
	measures := []struct {
		field string
		value string
		dst   *float64
	}{
		{FieldAge, raw.Age, &m.Age},
		{FieldSystolicBP, raw.SystolicBP, &m.SystolicBP},
		{FieldDiastolicBP, raw.DiastolicBP, &m.DiastolicBP},
		{FieldBS, raw.BS, &m.BS},
		{FieldBodyTemp, raw.BodyTemp, &m.BodyTemp},
		{FieldHeartRate, raw.HeartRate, &m.HeartRate},
		{FieldBMI, raw.BMI, &m.BMI},
	}
	for _, ms := range measures {
		f, err := parseMeasure(ms.value)
		if err != nil {
			errs = append(errs, FieldError{Field: ms.field, Message: "is out of range"})
			continue
		}
		*ms.dst = f
	}
	parity, err := strconv.Atoi(raw.Parity)
	if err != nil {
		errs = append(errs, FieldError{Field: FieldParity, Message: "is out of range"})
	}
	m.Parity = parity
	if len(errs) > 0 {
		return Measurements{}, errs.sorted()
	}

	errs = collectFieldErrors(validate.Struct(m))
	if len(errs) > 0 {
		return Measurements{}, errs.sorted()
	}
	return m, nil
}

// parseMeasure parses s as a finite float64.
func parseMeasure(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, &strconv.NumError{Func: "ParseFloat", Num: s, Err: strconv.ErrRange}
	}
	return f, nil
}

func collectFieldErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: "", Message: err.Error()}}
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: messageForTag(fe.Tag())})
	}
	return out
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "measure":
		return "must be a number"
	case "number":
		return "must be a whole number"
	case "oneof":
		return "must be 0 or 1"
	case "gt":
		return "must be greater than 0"
	case "gte":
		return "must not be negative"
	}
	return "is invalid"
}

func fieldIndex(name string) int {
	for i, n := range fieldNames {
		if n == name {
			return i
		}
	}
	return len(fieldNames)
}

func (v ValidationErrors) sorted() ValidationErrors {
	sort.SliceStable(v, func(i, j int) bool {
		return fieldIndex(v[i].Field) < fieldIndex(v[j].Field)
	})
	return v
}
