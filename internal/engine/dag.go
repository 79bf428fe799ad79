package engine

import (
	"github.com/shaiso/launchpad/internal/domain"
)

// Node — узел графа зависимостей.
type Node struct {
	// Task — задача из конфигурации.
	Task *domain.Task

	// Name — имя задачи.
	Name string

	// Index — позиция задачи во входном списке (стабильный tie-break).
	Index int

	// InDegree — количество входящих рёбер (неудовлетворённых зависимостей).
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*Node

	// Dependents — узлы, которые зависят от этого узла, во входном порядке.
	Dependents []*Node
}

// Graph — граф зависимостей над подмножеством задач одного run.
//
// Граф производный: строится заново на каждый run и нигде не хранится.
// Рёбра к задачам вне подмножества (выключенным, отфильтрованным)
// считаются уже удовлетворёнными и не добавляются.
type Graph struct {
	// Nodes — все узлы графа (имя → Node).
	Nodes map[string]*Node

	// List — узлы во входном порядке.
	List []*Node
}

// Plan — результат планирования.
type Plan struct {
	// Order — имена задач в порядке запуска.
	Order []string

	// Tasks — задачи в порядке запуска.
	Tasks []domain.Task

	// Anomaly — не nil, если часть задач не удалось упорядочить
	// и они дописаны в конец во входном порядке.
	Anomaly *SchedulingAnomaly
}

// BuildGraph строит граф зависимостей для переданного подмножества задач.
// Повторные имена игнорируются (первая задача выигрывает), дубликаты рёбер не учитываются.
func BuildGraph(tasks []domain.Task) *Graph {
	g := &Graph{
		Nodes: make(map[string]*Node, len(tasks)),
		List:  make([]*Node, 0, len(tasks)),
	}

	// Первый проход: создаём все узлы
	for i := range tasks {
		task := &tasks[i]
		if _, exists := g.Nodes[task.Name]; exists {
			continue
		}
		node := &Node{
			Task:       task,
			Name:       task.Name,
			Index:      len(g.List),
			DependsOn:  make([]*Node, 0, len(task.DependsOn)),
			Dependents: make([]*Node, 0),
		}
		g.Nodes[task.Name] = node
		g.List = append(g.List, node)
	}

	// Второй проход: связываем узлы по зависимостям.
	// Проход идёт во входном порядке, поэтому Dependents тоже упорядочены по входу.
	for _, node := range g.List {
		for _, dep := range node.Task.DependsOn {
			depNode, exists := g.Nodes[dep]
			if !exists {
				continue // зависимость вне подмножества считается удовлетворённой
			}
			g.addEdge(depNode, node)
		}
	}

	return g
}

// addEdge добавляет ребро между узлами.
// Дополнительно проверяет на дубликаты, чтобы избежать двойного учета InDegree.
func (g *Graph) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.Name == from.Name {
			return // уже связаны
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// Roots возвращает узлы без входящих рёбер во входном порядке.
func (g *Graph) Roots() []*Node {
	roots := make([]*Node, 0)
	for _, node := range g.List {
		if node.InDegree == 0 {
			roots = append(roots, node)
		}
	}
	return roots
}

// TopologicalOrder выполняет топологическую сортировку (алгоритм Кана).
//
// Очередь засевается корнями во входном порядке; зависимые узлы встают
// в очередь в том порядке, в котором их InDegree достиг нуля.
// Остаток (цикл, пропущенный валидацией) дописывается в конец во входном
// порядке, а в Plan.Anomaly попадает предупреждение.
func (g *Graph) TopologicalOrder() Plan {
	// Копируем inDegree, чтобы не модифицировать оригинал
	inDegree := make(map[string]int, len(g.Nodes))
	for name, node := range g.Nodes {
		inDegree[name] = node.InDegree
	}

	queue := g.Roots()
	emitted := make(map[string]bool, len(g.List))
	plan := Plan{
		Order: make([]string, 0, len(g.List)),
		Tasks: make([]domain.Task, 0, len(g.List)),
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		plan.Order = append(plan.Order, node.Name)
		plan.Tasks = append(plan.Tasks, *node.Task)
		emitted[node.Name] = true

		for _, dependent := range node.Dependents {
			inDegree[dependent.Name]--
			if inDegree[dependent.Name] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(plan.Order) < len(g.List) {
		residual := make([]string, 0, len(g.List)-len(plan.Order))
		for _, node := range g.List {
			if emitted[node.Name] {
				continue
			}
			residual = append(residual, node.Name)
			plan.Order = append(plan.Order, node.Name)
			plan.Tasks = append(plan.Tasks, *node.Task)
		}
		plan.Anomaly = &SchedulingAnomaly{Residual: residual}
	}

	return plan
}

// Order строит граф по подмножеству задач и возвращает порядок запуска.
// Детерминирован: одинаковый вход всегда даёт одинаковый порядок.
func Order(tasks []domain.Task) Plan {
	return BuildGraph(tasks).TopologicalOrder()
}

// Size возвращает количество узлов в графе.
func (g *Graph) Size() int {
	return len(g.List)
}
