package registry

import (
	_ "github.com/lanmouse/lanmouse/internal/backend/logbackend" // Register log backend
	_ "github.com/lanmouse/lanmouse/internal/backend/null"       // Register null backend
)
