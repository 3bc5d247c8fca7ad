package domain

type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (i Identity) IsZero() bool {
	return i.ID == "" && i.Email == ""
}
