//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderSources = []string{
	"standard.vert",
	"effect.vert",
	"opaque.frag",
	"alpha_tested.frag",
}

// Compiles every GLSL shader to SPIR-V next to its source.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders and then the engine binary.
func (Build) Engine() error {
	if err := buildShaders(); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "prism", "."), withStream()); err != nil {
		return err
	}
	return nil
}

func buildShaders() error {
	for _, src := range shaderSources {
		in := fmt.Sprintf("assets/shaders/%s", src)
		out := fmt.Sprintf("assets/shaders/%s.spv", src)
		if _, err := executeCmd("glslc", withArgs(in, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}
