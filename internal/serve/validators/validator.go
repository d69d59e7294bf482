package validators

// Validator collects request errors keyed by field. The map renders as the extras of a 400 response.
type Validator struct {
	Errors map[string]any
}

func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]any)}
}

func (v *Validator) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// CheckError records err under key. An empty message falls back to the error text.
func (v *Validator) CheckError(err error, key, message string) {
	if err == nil {
		return
	}
	if message == "" {
		message = err.Error()
	}
	v.AddError(key, message)
}

// AddError records message under key. The first message recorded for a key is kept, so a "required" error is not
// replaced by a format error found later for the same field.
func (v *Validator) AddError(key, message string) {
	if _, found := v.Errors[key]; found {
		return
	}
	v.Errors[key] = message
}
