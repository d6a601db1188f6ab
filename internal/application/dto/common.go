package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldError detalle de un campo rechazado por la validación.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationErrorResponse cuerpo 400 con los campos inválidos.
type ValidationErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields"`
}

// SyncInfo estado de la escritura remota que acompaña a cada mutación.
// "synced" y "pending-sync" llegan en respuestas de updates/deletes ya encolados;
// "local" indica que el almacén no creó la entidad y el ID es provisorio.
type SyncInfo struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}
