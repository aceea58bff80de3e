package identity

// Role は利用者の権限を表す
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleOrganizer Role = "ORGANIZER"
	RoleUser      Role = "USER"
)

// IsValid は定義済みの権限かを返す
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleUser:
		return true
	}
	return false
}

// Actor は認証済みの呼び出し元
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// HasRole はいずれかの権限を持つかを返す
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// CanManage は主催者IDのリソースを管理できるかを返す
// 管理者はすべて、主催者は自分のものだけ
func (a Actor) CanManage(organizerID string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleOrganizer && a.UserID != "" && a.UserID == organizerID
}
