//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the GLSL sources in shaders/ into SPIR-V under Shaders/.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the engine binary into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	// glfw and the Vulkan loader are cgo packages
	_, err := executeCmd("go", withArgs("build", "-o", "bin/toybricks", "."), withEnv("CGO_ENABLED=1"), withStream())
	return err
}

func buildShaders() error {
	if err := requireTool("glslc", "it ships with the Vulkan SDK"); err != nil {
		return err
	}
	if err := os.MkdirAll("Shaders", 0o755); err != nil {
		return err
	}
	if _, err := executeCmd("glslc", withArgs("shaders/shader.vert", "-o", "Shaders/vert.spv"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("glslc", withArgs("shaders/shader.frag", "-o", "Shaders/frag.spv"), withStream()); err != nil {
		return err
	}
	return nil
}
