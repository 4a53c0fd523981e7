package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role is a user's assigned role. Roles exist to pick a default permission
// set at user-creation time; at request time only the permission snapshot
// embedded in the session matters.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAdminPOC Role = "admin_poc"
	RoleExporter Role = "exporter"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAdminPOC, RoleExporter:
		return true
	}
	return false
}

// Capability names one category of operation a session may perform.
type Capability string

const (
	CapViewPatients  Capability = "view_patients"
	CapAddPatient    Capability = "add_patient"
	CapEditPatient   Capability = "edit_patient"
	CapDeletePatient Capability = "delete_patient"
	CapExportCSV     Capability = "export_csv"
	CapManageUsers   Capability = "manage_users"
	CapAllAccess     Capability = "all_access"
)

// PermissionSet is the closed set of capabilities. AllAccess dominates:
// a set with AllAccess grants every capability regardless of the other
// flags.
type PermissionSet struct {
	ViewPatients  bool `json:"view_patients"`
	AddPatient    bool `json:"add_patient"`
	EditPatient   bool `json:"edit_patient"`
	DeletePatient bool `json:"delete_patient"`
	ExportCSV     bool `json:"export_csv"`
	ManageUsers   bool `json:"manage_users"`
	AllAccess     bool `json:"all_access"`
}

// Has reports whether the set grants the capability. Unknown capabilities
// are granted only through AllAccess.
func (s PermissionSet) Has(c Capability) bool {
	if s.AllAccess {
		return true
	}
	switch c {
	case CapViewPatients:
		return s.ViewPatients
	case CapAddPatient:
		return s.AddPatient
	case CapEditPatient:
		return s.EditPatient
	case CapDeletePatient:
		return s.DeletePatient
	case CapExportCSV:
		return s.ExportCSV
	case CapManageUsers:
		return s.ManageUsers
	case CapAllAccess:
		return s.AllAccess
	}
	return false
}

var rolePermissions = map[Role]PermissionSet{
	RoleAdmin: {
		ViewPatients:  true,
		AddPatient:    true,
		EditPatient:   true,
		DeletePatient: true,
		ExportCSV:     true,
		ManageUsers:   true,
		AllAccess:     true,
	},
	RoleAdminPOC: {
		ViewPatients:  true,
		AddPatient:    true,
		EditPatient:   true,
		DeletePatient: true,
		ExportCSV:     true,
	},
	RoleExporter: {
		ViewPatients: true,
		ExportCSV:    true,
	},
}

// PermissionsForRole returns the static permission set for a role. An
// unrecognized role falls back to the exporter set, the least privileged.
func PermissionsForRole(role Role) PermissionSet {
	if set, ok := rolePermissions[role]; ok {
		return set
	}
	return rolePermissions[RoleExporter]
}

// Value implements driver.Valuer so the set is stored as jsonb.
func (s PermissionSet) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *PermissionSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = PermissionSet{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type for PermissionSet: %T", src)
	}
}
