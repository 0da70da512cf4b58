package repository

import (
	"encoding/json"

	apperrors "github.com/allisson/roleguard/internal/errors"
	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

// userRow holds the raw column values of a users row before decoding.
type userRow struct {
	user            rbacDomain.User
	role            string
	permissionsJSON []byte
}

// decode converts the raw role and permission columns into the domain user.
func (r *userRow) decode() (*rbacDomain.User, error) {
	role, err := rbacDomain.ParseRole(r.role)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to decode role of user %s", r.user.ID)
	}
	r.user.Role = role

	if len(r.permissionsJSON) > 0 {
		if err := json.Unmarshal(r.permissionsJSON, &r.user.Permissions); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal user permissions")
		}
	}

	return &r.user, nil
}

// marshalPermissions encodes overrides as a JSON array, never null.
func marshalPermissions(permissions []rbacDomain.Permission) ([]byte, error) {
	if permissions == nil {
		permissions = []rbacDomain.Permission{}
	}
	data, err := json.Marshal(permissions)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user permissions")
	}
	return data, nil
}

// marshalSnapshot encodes an audit old/new value, keeping nil as database NULL.
func marshalSnapshot(value map[string]any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log snapshot")
	}
	return data, nil
}

// unmarshalSnapshot decodes an audit old/new value, keeping database NULL as nil.
func unmarshalSnapshot(data []byte) (map[string]any, error) {
	if data == nil {
		return nil, nil
	}
	var value map[string]any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit log snapshot")
	}
	return value, nil
}
