package model

import "encoding/gob"

// Concrete classifiers travel inside artifacts as Classifier interface
// values, so gob needs their types up front.
func init() {
	gob.Register(&RandomForest{})
	gob.Register(&DecisionTreeClassifier{})
	gob.Register(&LogisticRegression{})
	gob.Register(&SVM{})
	gob.Register(&KNN{})
	gob.Register(&GaussianNB{})
}
