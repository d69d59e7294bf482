package httperror

const (
	Code400_0 = "400_0" // Invalid request body.
	Code400_1 = "400_1" // The customer record failed validation.
	Code400_2 = "400_2" // Invalid step index.
	Code404_0 = "404_0" // Customer not found.
	Code404_1 = "404_1" // Intake session not found.
	Code409_0 = "409_0" // A submission is already in progress.
	Code409_1 = "409_1" // The intake session was already submitted.
	Code422_0 = "422_0" // The current step is not complete.
	Code429_0 = "429_0" // Rate limit exceeded.
	Code500_0 = "500_0" // An internal error occurred while processing this request.
	Code502_0 = "502_0" // The customer records backend failed.
)
