package request

type ReserveRequest struct {
	// Units is a pointer so that 0 and negatives reach the engine, which
	// reports them as an invalid quantity.
	Units *int `json:"units" binding:"required"`
}

type ValidateRequest struct {
	QRToken string `json:"qrToken" binding:"required,max=128"`
}
