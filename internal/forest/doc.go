// Package forest implements a random forest classifier for two classes.
//
// Each tree is a CART tree grown on a bootstrap sample with Gini impurity,
// trying floor(sqrt(p)) randomly chosen features per split and growing until
// leaves are pure unless a maximum depth is set. Class probabilities are the
// mean of the leaf class fractions across trees.
//
// Training is sequential and fully determined by the seed:
//
//	f := forest.New(forest.WithTrees(100), forest.WithSeed(42))
//	if err := f.Fit(X, y); err != nil {
//	    return err
//	}
//	p, err := f.PredictProba(row)
package forest
