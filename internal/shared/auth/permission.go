package auth

import "github.com/google/uuid"

// Permission là static permission set của hệ thống.
// Core operations nhận auth.Context tường minh thay vì đọc claims từ request,
// giữ business logic test được mà không cần web context.
type Permission string

const (
	PermCatalogManage   Permission = "catalog:manage"
	PermInventoryManage Permission = "inventory:manage"
	PermVoucherManage   Permission = "voucher:manage"
	PermRewardManage    Permission = "reward:manage"
	PermOrderManage     Permission = "order:manage"
	PermUserManage      Permission = "user:manage"
)

// rolePermissions map role -> permission set. Role là dữ liệu trên user row;
// permission là hằng số compile-time, không có claim string động.
var rolePermissions = map[string][]Permission{
	"admin": {
		PermCatalogManage,
		PermInventoryManage,
		PermVoucherManage,
		PermRewardManage,
		PermOrderManage,
		PermUserManage,
	},
	"staff": {
		PermCatalogManage,
		PermInventoryManage,
		PermOrderManage,
	},
	"customer": {},
}

// Context mang identity + permissions của request hiện tại
type Context struct {
	UserID      uuid.UUID
	Role        string
	permissions map[Permission]struct{}
}

// NewContext resolve role thành permission set một lần cho mỗi request
func NewContext(userID uuid.UUID, role string) *Context {
	perms := make(map[Permission]struct{})
	for _, p := range rolePermissions[role] {
		perms[p] = struct{}{}
	}
	return &Context{UserID: userID, Role: role, permissions: perms}
}

// Has kiểm tra permission
func (c *Context) Has(p Permission) bool {
	if c == nil {
		return false
	}
	_, ok := c.permissions[p]
	return ok
}
