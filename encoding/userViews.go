package encoding

import "github.com/streetlens/panorama/api/model"

//LoginInfo is the payload returned by a successful platform login.
type LoginInfo struct {
	UserId     int64  `json:"userId"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Permission int    `json:"permission"`
	Role       string `json:"role"`
	Token      string `json:"token"`
}

func UserToLoginInfo(u *model.User, token string) *LoginInfo {
	return &LoginInfo{
		UserId:     u.Id,
		Username:   u.Username,
		Email:      u.Email,
		Phone:      u.Phone,
		Permission: u.Permission,
		Role:       u.Role,
		Token:      token,
	}
}

//GovLoginInfo is the payload returned by a government login; it carries the
//typed permission set the task screens gate on.
type GovLoginInfo struct {
	UserId      int64             `json:"userId"`
	Username    string            `json:"username"`
	Department  string            `json:"department"`
	Position    string            `json:"position"`
	Role        string            `json:"role"`
	Permissions model.Permissions `json:"permissions"`
	Token       string            `json:"token"`
}

func GovUserToLoginInfo(u *model.GovernmentUser, token string) *GovLoginInfo {
	return &GovLoginInfo{
		UserId:      u.Id,
		Username:    u.Username,
		Department:  u.Department,
		Position:    u.Position,
		Role:        u.Role,
		Permissions: u.Permissions,
		Token:       token,
	}
}

type UserView struct {
	Id         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Permission int    `json:"permission"`
	Role       string `json:"role"`
	Active     bool   `json:"active"`
	LastLogin  string `json:"last_login,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func UserToView(u *model.User) *UserView {
	return &UserView{
		Id:         u.Id,
		Username:   u.Username,
		Email:      u.Email,
		Phone:      u.Phone,
		Permission: u.Permission,
		Role:       u.Role,
		Active:     u.Active,
		LastLogin:  FormatTimePtr(u.LastLoginTime),
		CreatedAt:  FormatTime(u.CreatedAt),
	}
}

type ShopView struct {
	Id            int64  `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	Size          string `json:"size"`
	Role          string `json:"role"`
	Active        bool   `json:"status"`
	AuditStatus   string `json:"audit_status"`
	LastLoginTime string `json:"lastLoginTime,omitempty"`
}

func ShopToView(s *model.Shop) *ShopView {
	auditStatus := s.AuditStatus
	if auditStatus == "" {
		auditStatus = "pending"
	}
	return &ShopView{
		Id:            s.Id,
		Name:          s.Name,
		Address:       s.Address,
		Province:      s.Province,
		City:          s.City,
		District:      s.District,
		Size:          s.Size,
		Role:          s.Role,
		Active:        s.Active,
		AuditStatus:   auditStatus,
		LastLoginTime: FormatTimePtr(s.LastLoginTime),
	}
}
