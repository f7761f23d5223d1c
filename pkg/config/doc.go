// Package config loads netmock settings files.
//
// A settings file is YAML or JSON (detected by extension) and is validated
// against an embedded JSON Schema before it is decoded:
//
//	version: "1"
//	logging:
//	  level: debug
//	  format: json
//	passthrough:
//	  hosts: ["localhost", "*.internal"]
//	  exclude: ["https://*.internal/admin/**"]
//	mocks:
//	  - method: GET
//	    path: https://api.example.com/users/:id
//	    when: params.id == "42"
//	    response:
//	      status: 200
//	      body: {id: 42, name: ada}
//	  - method: GET
//	    path: https://api.example.com/users/:id
//	    response:
//	      status: 404
//
// Environment variables written as ${NAME} or ${NAME:-default} are expanded
// before parsing.
//
// Mocks sharing a method and URL pattern become one endpoint whose variants
// are tried in file order; the first whose "when" expression holds (or that
// has none) produces the reply.
package config
