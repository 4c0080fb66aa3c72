package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/internal/payload"
	"github.com/build-lab/girder/internal/resputil"
	"github.com/build-lab/girder/internal/util"
	"github.com/build-lab/girder/pkg/logutils"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewUserMgr)
}

type UserMgr struct {
	name string
	db   *gorm.DB
}

func NewUserMgr(conf *RegisterConfig) Manager {
	return &UserMgr{
		name: "users",
		db:   conf.DB,
	}
}

func (mgr *UserMgr) GetName() string { return mgr.name }

func (mgr *UserMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *UserMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/:name", mgr.GetUser)
	g.PUT("/attributes", mgr.UpdateAttributes)
}

func (mgr *UserMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListUser)
	g.DELETE("/:name", mgr.DeleteUser)
	g.PUT("/:name/role", mgr.UpdateRole)
}

type UserResp struct {
	ID        uint             `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      model.Role       `json:"role"`
	Status    model.UserStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
}

type UpdateRoleReq struct {
	Role model.Role `json:"role" binding:"required"`
}

type UserNameReq struct {
	Name string `uri:"name" binding:"required"`
}

func toUserResp(u *model.User) UserResp {
	return UserResp{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

// ListUser godoc
// @Summary List users
// @Description List user accounts, paginated
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param page_index query int true "page index, starting at 1"
// @Param page_size query int true "page size"
// @Param order query string false "sort order by id, asc or desc" default(desc)
// @Success 200 {object} resputil.Response[payload.ListResp[UserResp]] "one page of users"
// @Failure 400 {object} resputil.Response[any] "request parameter error"
// @Failure 500 {object} resputil.Response[any] "other errors"
// @Router /v1/admin/users [get]
func (mgr *UserMgr) ListUser(c *gin.Context) {
	var page payload.ListReqQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("validate list parameters failed, detail: %v", err))
		return
	}
	if *page.PageIndex < 1 || *page.PageSize < 1 {
		resputil.BadRequestError(c, "page_index and page_size must be positive")
		return
	}
	order := payload.Desc
	if payload.Order(c.Query("order")) == payload.Asc {
		order = payload.Asc
	}

	var count int64
	if err := mgr.db.WithContext(c).Model(&model.User{}).Count(&count).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("count users failed, detail: %v", err), resputil.NotSpecified)
		return
	}
	var users []model.User
	if err := mgr.db.WithContext(c).
		Order(fmt.Sprintf("id %s", order)).
		Offset((*page.PageIndex - 1) * *page.PageSize).
		Limit(*page.PageSize).
		Find(&users).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("list users failed, detail: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, payload.ListResp[UserResp]{
		Rows: lo.Map(users, func(u model.User, _ int) UserResp {
			return toUserResp(&u)
		}),
		Count: count,
	})
}

// GetUser godoc
// @Summary Get one user
// @Description Get a user by name
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param name path string true "username"
// @Success 200 {object} resputil.Response[UserResp] "user detail"
// @Failure 404 {object} resputil.Response[any] "user not found"
// @Router /v1/users/{name} [get]
func (mgr *UserMgr) GetUser(c *gin.Context) {
	name := c.Param("name")
	var user model.User
	if err := mgr.db.WithContext(c).Where("name = ?", name).First(&user).Error; err != nil {
		resputil.HTTPError(c, 404, fmt.Sprintf("user %q not found", name), resputil.ResourceNotFound)
		return
	}
	resputil.Success(c, toUserResp(&user))
}

// UpdateAttributes godoc
// @Summary Update own profile attributes
// @Description Update the optional profile fields of the current user
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param attributes body model.UserAttribute true "attributes"
// @Success 200 {object} resputil.Response[string] "updated"
// @Failure 400 {object} resputil.Response[any] "request parameter error"
// @Router /v1/users/attributes [put]
func (mgr *UserMgr) UpdateAttributes(c *gin.Context) {
	token := util.GetToken(c)

	var attributes model.UserAttribute
	if err := c.ShouldBindJSON(&attributes); err != nil {
		resputil.BadRequestError(c, "Invalid request body")
		return
	}

	var user model.User
	if err := mgr.db.WithContext(c).First(&user, token.UserID).Error; err != nil {
		resputil.Error(c, "User not found", resputil.NotSpecified)
		return
	}
	user.Attributes = datatypes.NewJSONType(attributes)
	if err := mgr.db.WithContext(c).Save(&user).Error; err != nil {
		resputil.Error(c, "Failed to update user attributes", resputil.NotSpecified)
		return
	}
	resputil.Success(c, "User attributes updated successfully")
}

// UpdateRole godoc
// @Summary Update a user's role
// @Description Set the platform role of a user
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param name path string true "username"
// @Param data body UpdateRoleReq true "role"
// @Success 200 {object} resputil.Response[string] "updated"
// @Failure 400 {object} resputil.Response[any] "request parameter error"
// @Router /v1/admin/users/{name}/role [put]
func (mgr *UserMgr) UpdateRole(c *gin.Context) {
	var req UpdateRoleReq
	var nameReq UserNameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("validate update parameters failed, detail: %v", err))
		return
	}
	if err := c.ShouldBindUri(&nameReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("validate update parameters failed, detail: %v", err))
		return
	}
	if req.Role < model.RoleEmployee || req.Role > model.RoleAdmin {
		resputil.BadRequestError(c, fmt.Sprintf("role value %d out of range", req.Role))
		return
	}

	result := mgr.db.WithContext(c).Model(&model.User{}).
		Where("name = ?", nameReq.Name).
		Update("role", req.Role)
	if result.Error != nil {
		resputil.Error(c, fmt.Sprintf("update role failed, detail: %v", result.Error), resputil.NotSpecified)
		return
	}
	if result.RowsAffected == 0 {
		resputil.HTTPError(c, 404, fmt.Sprintf("user %q not found", nameReq.Name), resputil.ResourceNotFound)
		return
	}
	logutils.Log.Infof("update role success, username: %s, role: %s", nameReq.Name, req.Role)
	resputil.Success(c, "")
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Delete a user account
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param name path string true "username"
// @Success 200 {object} resputil.Response[string] "deleted"
// @Failure 500 {object} resputil.Response[any] "other errors"
// @Router /v1/admin/users/{name} [delete]
func (mgr *UserMgr) DeleteUser(c *gin.Context) {
	name := c.Param("name")
	if err := mgr.db.WithContext(c).Where("name = ?", name).Delete(&model.User{}).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("delete user failed, detail: %v", err), resputil.NotSpecified)
		return
	}
	logutils.Log.Infof("delete user success, username: %s", name)
	resputil.Success(c, "")
}
