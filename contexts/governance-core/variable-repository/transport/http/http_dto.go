package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type UpdateVariableRequest struct {
	Value          string `json:"value"`
	ActivationTime string `json:"activation_time,omitempty"`
}

type VariableResponse struct {
	Key            string `json:"key"`
	Value          string `json:"value"`
	FutureValue    string `json:"future_value,omitempty"`
	ActivationTime string `json:"activation_time,omitempty"`
}

type VariableListResponse struct {
	Items []VariableResponse `json:"items"`
}
