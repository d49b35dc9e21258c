package request

type ShareRequest struct {
	Ref string `json:"ref" binding:"required,max=200"`
}
