package rbac

// Default policy. The original app gated admin pages on a single boolean
// flag; here admin is a role with the wildcard grant.
var RolePermissions = map[string][]string{
	"student": {
		"class:join",
		"class:view",
		"question:view",
		"question:create",
		"option:create",
		"question:solve",
		"report:create",
		"profile:update",
	},
	"admin": {
		"*", // everything, including topic:manage, class:analytics, class:create
	},
}
