// Package recorder writes training logs: a header record describing the run
// followed by one record per event, each annotated with the elapsed time
// since the log was opened.
//
//	rec, err := recorder.Open("train.jsonl", record.New("learning_rate", 0.01))
//	if err != nil {
//	    return err
//	}
//	defer rec.Close()
//
//	rec.Add("step", "loss", 5.0)
//
//	line := rec.Adding("eval", "partition", "valid")
//	line.Set("loss", 4.5)
//	line.Commit() // adds "duration"
//
// File logs are gzipped to path+".gz" on Close unless WithoutGzip is given.
package recorder
