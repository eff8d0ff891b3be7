package models

// Todo is a stored todo record.
type Todo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// CreateTodoRequest is the body of POST /api/todos/.
type CreateTodoRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

// UpdateTodoRequest carries a partial update. Nil fields are left untouched;
// an explicit null is treated the same as an absent field.
type UpdateTodoRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Message *string `json:"message"`
}

// Fields returns the present fields keyed by their stored names.
func (r *UpdateTodoRequest) Fields() map[string]string {
	fields := make(map[string]string, 3)
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Email != nil {
		fields["email"] = *r.Email
	}
	if r.Message != nil {
		fields["message"] = *r.Message
	}
	return fields
}

// MessageResponse is a body holding a single human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}
