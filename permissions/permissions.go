package permissions

// ProjectPermissions is a bitset of actions a team member may perform on a
// project. The zero value grants nothing.
type ProjectPermissions uint64

const (
	UploadVersion ProjectPermissions = 1 << iota
	DeleteVersion
	EditDetails
	EditBody
	ManageInvites
	RemoveMember
	EditMember
	DeleteProject
	ViewAnalytics
	ViewPayouts
)

// AllProjectPermissions is every project action this build defines.
const AllProjectPermissions = UploadVersion | DeleteVersion | EditDetails |
	EditBody | ManageInvites | RemoveMember | EditMember | DeleteProject |
	ViewAnalytics | ViewPayouts

// OrganizationPermissions is a bitset of actions a team member may perform on
// an organization. It is a distinct type from ProjectPermissions; converting
// between the two goes through ProjectDefaults, never a numeric cast.
type OrganizationPermissions uint64

const (
	OrgEditDetails OrganizationPermissions = 1 << iota
	OrgManageInvites
	OrgRemoveMember
	OrgEditMember
	OrgAddProject
	OrgRemoveProject
	OrgDeleteOrganization
	OrgEditMemberDefaults
)

// AllOrganizationPermissions is every organization action this build defines.
const AllOrganizationPermissions = OrgEditDetails | OrgManageInvites |
	OrgRemoveMember | OrgEditMember | OrgAddProject | OrgRemoveProject |
	OrgDeleteOrganization | OrgEditMemberDefaults

func (p ProjectPermissions) Contains(flag ProjectPermissions) bool {
	return p&flag == flag
}

func (p ProjectPermissions) Union(other ProjectPermissions) ProjectPermissions {
	return p | other
}

func (p ProjectPermissions) Intersect(other ProjectPermissions) ProjectPermissions {
	return p & other
}

func (p ProjectPermissions) Difference(other ProjectPermissions) ProjectPermissions {
	return p &^ other
}

func (p ProjectPermissions) IsSubsetOf(other ProjectPermissions) bool {
	return p&other == p
}

// Bits returns the storage encoding. Unknown bits round-trip verbatim.
func (p ProjectPermissions) Bits() uint64 { return uint64(p) }

// ProjectPermissionsFromBits decodes the encoding produced by Bits.
func ProjectPermissionsFromBits(bits uint64) ProjectPermissions {
	return ProjectPermissions(bits)
}

func (p OrganizationPermissions) Contains(flag OrganizationPermissions) bool {
	return p&flag == flag
}

func (p OrganizationPermissions) Union(other OrganizationPermissions) OrganizationPermissions {
	return p | other
}

func (p OrganizationPermissions) Intersect(other OrganizationPermissions) OrganizationPermissions {
	return p & other
}

func (p OrganizationPermissions) Difference(other OrganizationPermissions) OrganizationPermissions {
	return p &^ other
}

func (p OrganizationPermissions) IsSubsetOf(other OrganizationPermissions) bool {
	return p&other == p
}

// Bits returns the storage encoding. Unknown bits round-trip verbatim.
func (p OrganizationPermissions) Bits() uint64 { return uint64(p) }

// OrganizationPermissionsFromBits decodes the encoding produced by Bits.
func OrganizationPermissionsFromBits(bits uint64) OrganizationPermissions {
	return OrganizationPermissions(bits)
}

// orgToProject is the fixed projection table from organization actions to the
// project actions they imply on the organization's projects.
var orgToProject = []struct {
	org     OrganizationPermissions
	project ProjectPermissions
}{
	{OrgEditDetails, EditDetails | EditBody},
	{OrgManageInvites, ManageInvites},
	{OrgRemoveMember, RemoveMember},
	{OrgEditMember, EditMember},
	{OrgAddProject, UploadVersion},
	{OrgRemoveProject, DeleteVersion | DeleteProject},
}

// ProjectDefaults projects an organization permission set into project
// permission terms. It applies only when the user has no row on the project's
// own team; a project-team row always replaces this wholesale.
func (p OrganizationPermissions) ProjectDefaults() ProjectPermissions {
	var result ProjectPermissions
	for _, m := range orgToProject {
		if p.Contains(m.org) {
			result |= m.project
		}
	}
	return result
}
