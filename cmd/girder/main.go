package main

import (
	"k8s.io/klog/v2"

	"github.com/build-lab/girder/cmd/girder/helper"
)

// @title						Girder API
// @version						1.0.0
// @description					This is the API server for Girder, a construction project management platform.
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
// @description					Call /auth/login to get a token, then supply 'Bearer ${TOKEN}' to access protected routes
func main() {
	// Initialize configuration
	configInit := helper.NewConfigInitializer()
	backendConfig := configInit.GetBackendConfig()

	// Load debug environment if needed
	if err := configInit.LoadDebugEnvironment(); err != nil {
		klog.Fatalf("Failed to load env: %s", err)
	}

	// Initialize register config and dependencies
	registerConfig, err := configInit.InitializeRegisterConfig()
	if err != nil {
		klog.Fatalf("Failed to register config: %s\n", err)
	}

	// Start background jobs
	cronManager := configInit.StartCronJobs(registerConfig)
	defer cronManager.Stop()

	// Start HTTP server
	serverRunner := helper.NewServerRunner(backendConfig)
	serverRunner.StartServer(registerConfig)
}
