package entities

type PlaceRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
}

type PlaceResponse struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Capacity int    `json:"capacity"`
}
