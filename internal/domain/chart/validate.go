package chart

// ValidateOptions checks an option list before it is submitted: the list must
// be non-empty, no option may be the empty string, and no value may repeat
// (case-sensitive). Failures are collected per row so an editor can render
// them inline; a non-nil result means no request should be sent.
func ValidateOptions(options []string) ValidationErrors {
	var errs ValidationErrors
	if len(options) == 0 {
		return ValidationErrors{{Index: 0, Message: "at least one option is required"}}
	}
	seen := make(map[string]bool, len(options))
	for i, opt := range options {
		if opt == "" {
			errs = append(errs, ValidationError{Index: i, Message: "option must not be empty"})
			continue
		}
		if seen[opt] {
			errs = append(errs, ValidationError{Index: i, Message: "duplicate option"})
			continue
		}
		seen[opt] = true
	}
	return errs
}

// ValidateStructured runs the option-list rules against payloads that carry
// an option list; other payload kinds pass through.
func ValidateStructured(p Payload) ValidationErrors {
	switch v := p.(type) {
	case *DropdownPayload:
		return ValidateOptions(v.Options)
	case *RangePayload:
		return ValidateOptions(v.Options)
	case *CheckboxesPayload:
		return ValidateOptions(v.OptionKeys())
	default:
		return nil
	}
}
