package warehouse

import "fmt"

// Container is one cargo unit. It carries no behavior beyond its identity.
type Container struct {
	id int
}

// NewContainer creates a container with the given id.
func NewContainer(id int) Container {
	return Container{id: id}
}

// NewContainers creates n containers with consecutive ids starting at firstID.
func NewContainers(firstID, n int) []Container {
	if n <= 0 {
		return nil
	}
	containers := make([]Container, n)
	for i := range containers {
		containers[i] = Container{id: firstID + i}
	}
	return containers
}

// ID returns the container's identity.
func (c Container) ID() int { return c.id }

func (c Container) String() string {
	return fmt.Sprintf("Container[%d]", c.id)
}
