package servicenow

// Reference is a ServiceNow link field: the value is a sys_id, the link an
// absolute URL that dereferences to the referenced record.
type Reference struct {
	Link  string `json:"link"`
	Value string `json:"value"`
}

// Application is the projection of a cmdb_ci_business_app row this service
// reads. Regulatory tags arrive as a single comma-separated string.
type Application struct {
	Name                 string    `json:"name"`
	Number               string    `json:"number"`
	ShortDescription     string    `json:"short_description"`
	InstallType          string    `json:"install_type"`
	CloudModel           string    `json:"u_cloud_model"`
	PrimaryITOwner       Reference `json:"u_primary_it_owner"`
	ITApplicationOwner   Reference `json:"it_application_owner"`
	L3Name               Reference `json:"u_l3_name"`
	RegulatoryCompliance string    `json:"u_regulatory_legal_and_compliance"`
}

// User is an organizational person record dereferenced from an Application
// link field.
type User struct {
	SysID        string    `json:"sys_id"`
	Name         string    `json:"name"`
	SysClassName string    `json:"sys_class_name"`
	SysDomain    Reference `json:"sys_domain"`
}
