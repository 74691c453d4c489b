// Package file keeps docqa's user-editable state under ~/.docqa:
// config.toml (ConfigStore), environment and .env overrides on top of it
// (EnvConfigStore), and the answer prompts in prompts/ (PromptStore).
package file
