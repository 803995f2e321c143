package rbac

// Default policy. Deployments can swap the map via NewChecker.
var RolePermissions = map[string][]string{
	"student": {
		"course:view",
		"lesson:view",
		"quiz:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"assignment:view",
		"submission:create",
		"submission:view-own",
		"asset:get",
		"user:change_password",
	},
	"teacher": {
		"course:create",
		"course:view",
		"lesson:create",
		"lesson:view",
		"quiz:create",
		"quiz:view",
		"quiz:view-keys",
		"enrollment:manage",
		"attempt:view-all",
		"attempt:grade",
		"assignment:create",
		"assignment:view",
		"submission:view-all",
		"submission:grade",
		"asset:get",
		"asset:put",
		"users:bulk_upsert",
		"users:list",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
