// Package logger provides a singleton Zap logger with context-based scoping.
//
// Una sola instancia global se inicializa con Init() desde main. Cada request
// recibe un logger "scoped" (request_id, method, path) inyectado en el
// contexto por el middleware de logging; los services lo recuperan con
// From(ctx) y agregan sus propios campos (layer, component, op).
//
// Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Info("profile updated", logger.UserID(id))
package logger
