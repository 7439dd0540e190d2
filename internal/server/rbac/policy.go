package rbac

import "sort"

// Capability names an operation class that business handlers check for.
type Capability string

const (
	ManageCustomers      Capability = "manage-customers"
	ManageSuppliers      Capability = "manage-suppliers"
	DeleteBusinessRecord Capability = "delete-business-record"
	ViewRecords          Capability = "view-records"
	ViewReports          Capability = "view-reports"
	ManageReports        Capability = "manage-reports"
	AdministerSystem     Capability = "administer-system"
)

// AllCapabilities lists every defined capability in a stable order.
func AllCapabilities() []Capability {
	return []Capability{
		ManageCustomers,
		ManageSuppliers,
		DeleteBusinessRecord,
		ViewRecords,
		ViewReports,
		ManageReports,
		AdministerSystem,
	}
}

// capabilityTable is the single source of truth for what each role may do.
var capabilityTable = map[Role][]Capability{
	Admin: AllCapabilities(),
	Owner: AllCapabilities(),
	Accountant: {
		ManageCustomers,
		ManageSuppliers,
		DeleteBusinessRecord,
		ViewRecords,
		ViewReports,
		ManageReports,
	},
	// USER may create and update but not delete.
	User: {
		ManageCustomers,
		ManageSuppliers,
		ViewRecords,
		ViewReports,
	},
	Viewer: {
		ViewRecords,
		ViewReports,
	},
}

var capabilitySets = func() map[Role]map[Capability]struct{} {
	sets := make(map[Role]map[Capability]struct{}, len(capabilityTable))
	for role, caps := range capabilityTable {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		sets[role] = set
	}
	return sets
}()

// Can reports whether role grants capability. Undefined roles grant nothing.
func Can(role Role, capability Capability) bool {
	_, ok := capabilitySets[role][capability]
	return ok
}

// Capabilities returns the capabilities granted to role, sorted by name.
func Capabilities(role Role) []Capability {
	caps := make([]Capability, 0, len(capabilitySets[role]))
	for c := range capabilitySets[role] {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}
