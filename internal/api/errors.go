package api

// InspectionError is returned when the entry list could not be obtained.
// Reason is the service-provided message when there is one, otherwise the
// transport or decoding error text.
type InspectionError struct {
	Reason     string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *InspectionError) Error() string {
	return "inspection failed: " + e.Reason
}

func (e *InspectionError) Unwrap() error { return e.Err }

// ExtractionError is returned when a single entry could not be fetched.
type ExtractionError struct {
	Filename   string
	Reason     string
	StatusCode int
	Err        error
}

func (e *ExtractionError) Error() string {
	return "extracting " + e.Filename + ": " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }
